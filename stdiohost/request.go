package stdiohost

import (
	"encoding/json"
)

// DefaultCommand is selected when the envelope omits the command field
// or when the first line is a legacy bare configuration object.
const DefaultCommand = "run"

// Request is the command envelope read from the first stdin line.
type Request struct {
	Command string          `json:"command"`
	Config  json.RawMessage `json:"config"`
}

// parseOutcome tags the result of the two-attempt first-line parse.
type parseOutcome int

const (
	parsedEnvelope parseOutcome = iota
	parsedBareConfig
	parseFailed
)

// parseRequest applies the two-attempt parse: first the command
// envelope shape, then the legacy bare-configuration shape implying
// the run command. Only a line that is not a JSON object at all fails.
func parseRequest(line []byte) (Request, parseOutcome) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return Request{}, parseFailed
	}

	rawCmd, hasCommand := fields["command"]
	rawCfg, hasConfig := fields["config"]
	if hasCommand || hasConfig {
		req := Request{Command: DefaultCommand, Config: rawCfg}
		if hasCommand {
			var cmd string
			if err := json.Unmarshal(rawCmd, &cmd); err != nil {
				// Envelope attempt failed; the whole object is the config.
				return Request{Command: DefaultCommand, Config: line}, parsedBareConfig
			}
			if cmd != "" {
				req.Command = cmd
			}
		}
		return req, parsedEnvelope
	}

	return Request{Command: DefaultCommand, Config: line}, parsedBareConfig
}
