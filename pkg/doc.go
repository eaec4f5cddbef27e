// Package pkg provides the core libraries for Spangrid virtualized grid layout.
//
// # Overview
//
// Spangrid lays out items that span several lanes in a strip that scrolls
// along one axis, and keeps only the items near the viewport alive. The pkg
// directory is organized into these areas:
//
//  1. [grid] - Free-rectangle packing and the placement cache
//  2. [engine] - The virtualized window: rebuild, fill, scroll, recycle, anchors
//  3. [layout], [render] - Whole-strip packing and SVG/PNG/JSON/DOT output
//  4. [manifest] - Item lists loaded from TOML or JSON
//  5. [cache], [storage], [session] - Result caching, layout documents, saved anchors
//  6. [pipeline] - Orchestration (manifest → pack → render, scroll scripts)
//
// # Architecture
//
// The typical data flow:
//
//	Manifest (TOML/JSON)
//	         ↓
//	    [grid] package (find a free rectangle per item, in index order)
//	         ↓
//	    [engine] package (realize the window around the viewport)
//	         ↓
//	    Renderer (acquire, bind, release handles)
//
// Offline, [pipeline] packs the whole strip through [layout] and renders it
// with [render], caching both stages in [cache].
//
// # Quick Start
//
// Drive an engine over a manifest:
//
//	import (
//	    "github.com/matzehuels/spangrid/pkg/engine"
//	    "github.com/matzehuels/spangrid/pkg/manifest"
//	)
//
//	m, _ := manifest.Load("gallery.toml")
//	eng, _ := engine.New(engine.Config{Lanes: 3, Width: 1080, Height: 1920}, m, renderer)
//	_ = eng.Rebuild()
//	consumed, _ := eng.Scroll(400)
//
// # Subpackages
//
//   - [buildinfo]: version information stamped at build time
//   - [errors]: coded errors and input validation
//   - [observability]: hooks for engine and cache events
package pkg
