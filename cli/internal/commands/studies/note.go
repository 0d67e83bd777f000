/*
Copyright 2021 GramLabs, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package studies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/pkg/api"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// NoteOptions includes the configuration for reading and writing notes
type NoteOptions struct {
	Options

	Filename string
}

// NewNoteCommand creates a new command for study and trial notes
func NewNoteCommand(o *NoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note (study ID | trial STUDY_ID NUMBER) [TEXT]",
		Short: "Display or replace a note",
		Long: "Display or replace the Markdown note of a study or trial.\n\n" +
			"Without any text the current note is printed. The note body can be read from a file\n" +
			"(or standard input using \"-\") instead of the command line.",

		Args: cobra.MinimumNArgs(2),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.note(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&o.Filename, "filename", "f", o.Filename, "file that contains the note body")

	_ = cmd.MarkFlagFilename("filename", "md", "txt")

	return cmd
}

func (o *NoteOptions) note(ctx context.Context, args []string) error {
	t, err := normalizeType(args[0])
	if err != nil {
		return err
	}

	studyID, err := parseID("study ID", args[1])
	if err != nil {
		return err
	}
	args = args[2:]

	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return err
	}

	var trial *v1.Trial
	note := study.Note
	switch t {
	case typeStudy:
	case typeTrial:
		if len(args) == 0 {
			return fmt.Errorf("a trial number is required")
		}
		number, err := parseID("trial number", args[0])
		if err != nil {
			return err
		}
		if trial, err = findTrialByNumber(&study, number); err != nil {
			return err
		}
		note = trial.Note
		args = args[1:]
	default:
		return fmt.Errorf("cannot write a note for %s", t)
	}

	body, err := o.body(args)
	if err != nil {
		return err
	}

	// Print the current note if there is nothing to write
	if body == nil {
		_, err := fmt.Fprintln(o.Out, strings.TrimRight(note.Body, "\n"))
		return err
	}

	// The server only accepts the next version of the note
	next := v1.Note{Version: note.Version + 1, Body: *body}
	if trial != nil {
		err = o.StudiesAPI.SaveTrialNote(ctx, study.ID, trial.TrialID, next)
	} else {
		err = o.StudiesAPI.SaveStudyNote(ctx, study.ID, next)
	}

	var aerr *api.Error
	if errors.As(err, &aerr) && aerr.Type == v1.ErrNoteConflict {
		return fmt.Errorf("the note was modified concurrently (version %d is no longer current), try again", note.Version)
	} else if err != nil {
		return err
	}

	if trial != nil {
		_, err = fmt.Fprintf(o.Out, "trial %d note updated (version %d)\n", trial.Number, next.Version)
	} else {
		_, err = fmt.Fprintf(o.Out, "study \"%s\" note updated (version %d)\n", study.Name, next.Version)
	}
	return err
}

// body returns the new note body, or nil if the note should not be changed
func (o *NoteOptions) body(args []string) (*string, error) {
	if o.Filename != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("note text cannot be combined with a file")
		}
		b, err := o.IOStreams.ReadFile(o.Filename)
		if err != nil {
			return nil, err
		}
		s := string(b)
		return &s, nil
	}

	if len(args) == 0 {
		return nil, nil
	}

	s := strings.Join(args, " ")
	return &s, nil
}
