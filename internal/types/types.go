// README: Common scalar types shared across modules.
package types

// ID is an opaque identifier assigned by the municipal backend.
type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
