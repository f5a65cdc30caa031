// Package autorecord wires the detectors, the handshake and the workflows into
// the three page roles the engine recognizes:
//
//   - CalendarHost watches the calendar page for an event dialog that gained a
//     conferencing link, opens its video call options and, once the embedded
//     settings frame reports ready, tells it to configure itself.
//   - SettingsFrame lives in that embedded frame and runs the settings
//     workflow when the calendar page asks for it.
//   - MeetCall watches a call page and starts recording once the user has
//     joined.
//
// Every string the engine looks for on the page is data in Labels and
// Selectors, and every fixed delay is in Timings.
package autorecord
