/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package selector

import "errors"

var (
	ErrEmptyCatalog = errors.New("catalog must contain at least one image")
	ErrInvalidMode  = errors.New("invalid selection mode")
	ErrNotFound     = errors.New("chosen image not found in catalog")
)
