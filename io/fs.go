// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// CreateFS defines a file system interface that supports reading, creating
// and removing files.
type CreateFS interface {
	// Open opens a file for reading.
	Open(name string) (file io.ReadCloser, err error)
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Remove removes a file.
	Remove(name string) (err error)
}

// HostFS is the host file system. Names are host paths.
type HostFS struct{}

var _ CreateFS = HostFS{}

func (HostFS) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (HostFS) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func (HostFS) Remove(name string) error {
	return os.Remove(name)
}

// LoadRom reads a program image from a file.
func LoadRom(fsys CreateFS, name string) (rom *Rom, err error) {
	file, err := fsys.Open(name)
	if err != nil {
		err = errors.Wrap(err, "open failed")
		return
	}
	defer file.Close()

	rom = &Rom{}
	_, err = rom.ReadFrom(file)
	if err != nil {
		rom = nil
		err = errors.Wrap(err, "read failed")
		return
	}

	return
}

// SaveRom writes a program image to a file. On failure the file is removed,
// so that no partial image is left behind.
func SaveRom(fsys CreateFS, name string, rom *Rom) (err error) {
	file, err := fsys.Create(name)
	if err != nil {
		err = errors.Wrap(err, "create failed")
		return
	}

	_, err = rom.WriteTo(file)
	if err != nil {
		file.Close()
		fsys.Remove(name)
		err = errors.Wrap(err, "write failed")
		return
	}

	err = file.Close()
	if err != nil {
		fsys.Remove(name)
		err = errors.Wrap(err, "close failed")
		return
	}

	return
}
