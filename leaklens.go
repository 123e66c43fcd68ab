// ABOUTME: Main leaklens package providing version information and package documentation
// ABOUTME: This is the root package for the in-process reference-leak auditor

// Package leaklens diagnoses reference leaks of heavyweight, supposedly
// disposable objects inside a long-lived host process. It enumerates the
// live instances of a tracked type still reachable from registered roots,
// and renders a filtered, bounded, cycle-safe backreference tree for any one
// of them so an operator can see which retaining path is keeping the object
// alive.
//
// It is the live-process companion to heaplens: heaplens analyzes serialized
// heap dumps offline, leaklens inspects the object graph of the process it
// runs in, at the moment it runs.
package leaklens

// Version is the semantic version of the leaklens tool
const Version = "0.1.0-dev"
