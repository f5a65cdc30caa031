// Package dom defines the document model the automation engine works against.
//
// The engine never talks to a browser directly. It sees a Document (one per
// frame) made of Nodes, finds controls through Queries, and writes to the page
// only by clicking. Two backends implement these interfaces:
//
//   - pkg/browser adapts Playwright frames and element handles
//   - pkg/dom/htmldom is an in-memory document used by tests and offline probing
//
// Matching rules (label text, keyword lists) are data passed to Queries as
// predicates, so the control flow in the workflows does not change when labels
// do.
package dom
