package turing

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Blank is the default blank symbol.
const Blank = "_"

// Tape is an unbounded tape. Only non-blank cells are stored.
type Tape struct {
	blank string
	cells map[int]string
}

// NewTape creates a tape holding input from position 0. Blank symbols in input are skipped.
func NewTape(input, blank string) *Tape {
	if blank == "" {
		blank = Blank
	}
	t := &Tape{blank: blank, cells: map[int]string{}}
	for i, r := range []rune(input) {
		t.Set(i, string(r))
	}
	return t
}

// Get returns the symbol at index.
func (t *Tape) Get(index int) string {
	if s, ok := t.cells[index]; ok {
		return s
	}
	return t.blank
}

// Set writes symbol at index.
func (t *Tape) Set(index int, symbol string) {
	if symbol == t.blank {
		delete(t.cells, index)
		return
	}
	t.cells[index] = symbol
}

// Bounds returns the smallest and largest non-blank positions. ok is false on an empty tape.
func (t *Tape) Bounds() (lo, hi int, ok bool) {
	if len(t.cells) == 0 {
		return 0, 0, false
	}
	keys := slices.Sorted(maps.Keys(t.cells))
	return keys[0], keys[len(keys)-1], true
}

// Window renders the cells in [from, to].
func (t *Tape) Window(from, to int) string {
	var b strings.Builder
	for i := from; i <= to; i++ {
		b.WriteString(t.Get(i))
	}
	return b.String()
}

// String renders the non-blank part of the tape.
func (t *Tape) String() string {
	lo, hi, ok := t.Bounds()
	if !ok {
		return ""
	}
	return t.Window(lo, hi)
}

// DeepCopy freezes the tape into history.
func (t *Tape) DeepCopy() interface{} {
	return &Tape{blank: t.blank, cells: maps.Clone(t.cells)}
}

// MarshalJSON renders the tape as {"blank": "_", "cells": {"0": "1", ...}}.
func (t *Tape) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Blank string         `json:"blank"`
		Cells map[int]string `json:"cells"`
	}{t.blank, t.cells})
}
