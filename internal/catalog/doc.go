// Package catalog maps benchmark category names to the endpoints and
// default load parameters of each framework under test.
package catalog
