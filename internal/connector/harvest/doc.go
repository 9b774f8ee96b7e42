// Package harvest implements a Harvest (harvestapp.com) source connector
// using the endpoint interfaces. It extracts clients, invoices, estimates,
// expenses, timesheets, and report datasets from the Harvest v2 REST API.
//
// Every dataset is described by a StreamDescriptor in catalog.go: a name
// plus optional incremental, parent/child, and report capabilities. The
// request-building and slice-generation logic in streams.go composes those
// capabilities instead of hardcoding per-dataset behavior.
package harvest
