// Package types contains read shapes returned by the engine's query surface.
package types

import "github.com/okian/raffle/internal/domain/model"

// Row is one line of the display table: an entry plus its distance to the
// target and its 1-based position in display order.
type Row struct {
	Position int   `json:"position"`
	Distance int64 `json:"distance"`
	model.Entry
}
