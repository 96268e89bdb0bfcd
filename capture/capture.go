// SPDX-License-Identifier: GPL-3.0-or-later

// Package capture writes a CSV trace of the bits crossing a medium.
//
// A [*Writer] implements [medium.Observer], so it can be attached to
// any medium through [medium.Config]. Each transmission becomes one
// [Record] row.
package capture

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/jszwec/csvutil"
	"github.com/rbmk-project/linksim/medium"
)

// Record is a CSV row describing a single transmission.
type Record struct {
	Seq       uint64 `csv:"seq"`
	Sender    int    `csv:"sender"`
	Sent      int    `csv:"sent"`
	Delivered int    `csv:"delivered"`
	Flipped   bool   `csv:"flipped"`
	Burst     int    `csv:"burst"`
}

// NewRecord converts a [medium.Transmission] into a [Record].
func NewRecord(tx medium.Transmission) Record {
	return Record{
		Seq:       tx.Seq,
		Sender:    tx.Sender,
		Sent:      bitValue(tx.Sent),
		Delivered: bitValue(tx.Delivered),
		Flipped:   tx.Flipped(),
		Burst:     tx.Burst,
	}
}

func bitValue(bit bool) int {
	if bit {
		return 1
	}
	return 0
}

// Writer is a [medium.Observer] encoding each transmission as a CSV row.
//
// Construct using [New] or [Create].
type Writer struct {
	// closer is the optional underlying file.
	closer io.Closer

	// enc encodes the records.
	enc *csvutil.Encoder

	// err is the first encoding error.
	err error

	// mu provides mutual exclusion.
	mu sync.Mutex

	// rows is the number of rows written.
	rows int

	// w is the CSV writer.
	w *csv.Writer
}

// New creates a new [*Writer] writing to w.
func New(w io.Writer) *Writer {
	cw := csv.NewWriter(w)
	return &Writer{
		enc: csvutil.NewEncoder(cw),
		w:   cw,
	}
}

// Create creates the file at path and returns a [*Writer] using it.
// Closing the writer closes the file.
func Create(path string) (*Writer, error) {
	filep, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw := New(filep)
	cw.closer = filep
	return cw, nil
}

var _ medium.Observer = &Writer{}

// Observe implements [medium.Observer]. Encoding errors are
// retained and returned by [*Writer.Close].
func (cw *Writer) Observe(tx medium.Transmission) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.err != nil {
		return
	}
	if cw.err = cw.enc.Encode(NewRecord(tx)); cw.err == nil {
		cw.rows++
	}
}

// Rows returns the number of rows written so far.
func (cw *Writer) Rows() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.rows
}

// Close flushes the buffered rows and closes the underlying
// file, if any. The returned error joins every failure.
func (cw *Writer) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.w.Flush()
	errv := []error{cw.err, cw.w.Error()}
	if cw.closer != nil {
		errv = append(errv, cw.closer.Close())
		cw.closer = nil
	}
	return errors.Join(errv...)
}
