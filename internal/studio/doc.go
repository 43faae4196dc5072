/*
Package studio is the host side of the editor: it keeps the current sketch
code, the code source's explanation of it and the last sketch error, and
runs the three code source flows.

  - Submit: generate when there is no code yet, modify otherwise
  - Fix: repair the code using the recorded sketch error
  - Clear: forget everything and unmount

Flows render prompts with text/template, call a Completer through a
circuit breaker and parse the JSON reply. Unusable replies are retried with
feedback up to the configured limit. Thoughts are HTML-sanitized before
they are stored.
*/
package studio
