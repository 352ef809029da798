// Package domain models the Customer service's own entities. Customer
// embeds Person by composition (flattened fields), per §9's "Model
// Customer as a record that embeds a Person value... do not introduce an
// inheritance hierarchy" design note — the source's Customer-extends-Person
// relationship exists only for ORM convenience and has no place here.
package domain

// Person holds the demographic/contact attributes common to every
// customer. It has no identity of its own outside of the Customer it is
// embedded in.
type Person struct {
	DisplayName         string
	NationalIdentifier  string
	BirthDate           string
	Address             string
	Phone               string
	Email               string
}
