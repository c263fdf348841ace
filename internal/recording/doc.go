// Package recording stores HTTP exchanges with a data service in SQLite and
// replays them.
//
// A Recorder sits in front of a real transport and writes every exchange
// to the Store. A Replayer answers the same requests from the Store
// without touching the network, so tests built on recorded traffic are
// deterministic.
//
// Requests are matched by content: method, request URI and canonical JSON
// body hash to a request key (see ir.RequestKey). Identical requests sent
// more than once are told apart by a per-key sequence number, so a replay
// sees the responses in the order they were recorded.
package recording
