// Package http provides the jsonpost request builder and its transfer engines.
//
// A Builder accumulates a URL, headers and a JSON body, then performs a
// single POST through an Engine:
//   - Request bytes are pulled by the engine through a read callback
//   - Response bytes are pushed by the engine through a write callback
//   - Buffer mode collects the response and parses it as JSON
//   - Stream mode forwards the response to a caller-supplied writer
//
// Two engines are provided: NetEngine (net/http) and RestyEngine (resty).
package http
