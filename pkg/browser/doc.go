// Package browser connects the automation engine to a live Chromium through
// Playwright.
//
// # Architecture
//
//  1. SessionManager launches Chromium, optionally over a persistent profile
//     so the Google sign-in survives restarts.
//  2. An init script injected into every frame reports DOM mutations and
//     postMessage traffic back through exposed bindings, and assigns stable
//     element keys from a WeakMap without writing to the DOM.
//  3. Attacher watches frame navigations, wraps each new document as a
//     dom.Document and hands it to the orchestrator its URL classifies to,
//     exactly once per document.
//
// Nothing in this package decides what to click; it only adapts Playwright
// frames and element handles to the dom interfaces.
package browser
