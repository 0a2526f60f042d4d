// Package parser recovers a list of FileActions from OPX edit markup embedded in
// an LLM response. Parsing is pure: it never touches the filesystem.
//
// The accepted surface looks like:
//
//	<opx>
//	  <edit file="src/app.go" op="patch" root="backend">
//	    <why>Bump the retry limit</why>
//	    <find occurrence="last">
//	<<<
//	retries := 3
//	>>>
//	    </find>
//	    <put>
//	<<<
//	retries := 5
//	>>>
//	    </put>
//	  </edit>
//	  <edit file="old.txt" op="move"><to file="new.txt"/></edit>
//	  <edit file="tmp.txt" op="remove"/>
//	</opx>
package parser

import (
	"github.com/Cyclone1070/opx/internal/model"
)

// Parse sanitises text, collects every edit element and dispatches each one.
// A structural error in one element drops that element only; its error is reported
// with the element's 1-based index and declared path.
func Parse(text string) model.ParseOutcome {
	outcome := model.ParseOutcome{
		Actions: []model.FileAction{},
		Errors:  []string{},
	}

	clean := Sanitize(text)
	if clean == "" {
		outcome.Errors = append(outcome.Errors, ErrEmptyInput.Error())
		return outcome
	}

	raws := collectEdits(clean)
	if len(raws) == 0 {
		outcome.Errors = append(outcome.Errors, ErrNoEdits.Error())
		return outcome
	}

	for i, raw := range raws {
		action, path, err := dispatch(raw)
		if err != nil {
			editErr := &EditError{Index: i + 1, Path: path, Cause: err}
			outcome.Errors = append(outcome.Errors, editErr.Error())
			continue
		}
		outcome.Actions = append(outcome.Actions, action)
	}
	return outcome
}
