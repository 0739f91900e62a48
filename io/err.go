// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"errors"

	"github.com/ezrec/armulet/translate"
)

var f = translate.From

var (
	// Image errors
	ErrImageTruncated = errors.New(f("image is not a whole number of words"))
)
