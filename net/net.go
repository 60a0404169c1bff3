// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net runs a graph of superclass layers connected by named blobs.
//
// Example:
//
//	param, err := config.LoadNet("net.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := net.New(param, layers.NewRegistry())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = n.SetInput("score", scores, blob.Shape{1, 3, 1, 1})
//	if err := n.Setup(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := n.Forward(); err != nil {
//	    log.Fatal(err)
//	}
package net

import (
	"log"

	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/layers"
	"github.com/born-ml/superclass/internal/net"
)

// Net is an ordered list of layers connected by named blobs.
type Net = net.Net

// Option configures a Net.
type Option = net.Option

// Errors returned by Net.
var (
	ErrNotSetUp     = net.ErrNotSetUp
	ErrUnknownBlob  = net.ErrUnknownBlob
	ErrNotAnInput   = net.ErrNotAnInput
	ErrDuplicateTop = net.ErrDuplicateTop
)

// New instantiates and connects the layers of param.
func New(param *config.NetParameter, reg *layers.Registry, opts ...Option) (*Net, error) {
	return net.New(param, reg, opts...)
}

// WithLogger reports layer setup and top shapes to l.
func WithLogger(l *log.Logger) Option {
	return net.WithLogger(l)
}
