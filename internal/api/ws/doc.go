// Package ws streams a sketch session over WebSocket.
//
// The server pushes every session event (state, sketch_error, console,
// frame, resize) as a JSON text message, preceded by a hello message. The
// client may send:
//
//	{"type":"event","event":{"type":"keydown","key":"ArrowLeft","keyCode":37}}
//	{"type":"resize","width":640,"height":480}
//	{"type":"ping"}
//
// Connecting with ?frames=png adds a binary PNG after every frame event.
package ws
