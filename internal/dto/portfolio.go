package dto

// ProjectQuery filters the public portfolio listing.
type ProjectQuery struct {
	Category string
	Featured *bool
}
