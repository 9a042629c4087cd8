// Package simstat analyzes SIM (Sistema de Informações sobre Mortalidade)
// death records published by DATASUS.
//
// The pipeline is:
//
//	helpers.ReadFile  → Latin-1, semicolon-separated CSV into engine.Records
//	schema.SIM        → data dictionary: coded columns, labels, required columns
//	analysis.Analyzer → the five standard questions as Reports
//	render            → console, PNG/SVG charts, JSON/YAML, Excel
//
// engine holds the computation: filtering, grouping, value counts,
// class-balancing resampling and the chart/table builders. It never reads
// files and has no knowledge of SIM.
//
// Command-line entry points live in cmd/simstat (cobra) and cmd/simviewer
// (fyne).
package simstat
