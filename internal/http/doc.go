// Package http exposes the availability coordinator as a JSON API.
//
// The router exposes the following endpoints:
//   - GET /health: liveness check.
//   - POST /events, GET /events: create an event and list the caller's hosted
//     events with response counts. Both require an identity.
//   - GET /events/{eventID}, PUT /events/{eventID}, DELETE /events/{eventID}:
//     read is public; mutations are restricted to the host.
//   - GET /events/{eventID}/share: the link participants open to answer.
//   - POST /events/{eventID}/responses: submit availability. Anonymous callers
//     always create a response; an identity replaces its previous answer.
//     Returns 201 on create and 200 on update.
//   - GET /events/{eventID}/responses/mine: prefill data for a returning identity.
//   - DELETE /events/{eventID}/responses/{responseID}: host only.
//   - GET /events/{eventID}/results and GET /events/{eventID}/results.ics: the
//     overlap view as JSON or as an iCalendar feed.
//   - GET /history: the caller's answers across events.
//   - POST /timeslots/form: applies one transition of the slot entry form and
//     returns the new form together with live or final validation feedback.
//   - GET /resolve?input=...: extracts an event identifier from a pasted link.
//
// Identity comes from an optional "Authorization: Bearer <JWT>" header; see
// ResolveIdentity. Request/response DTOs live alongside their handlers.
package http
