// Package recording provides the recording commands
package recording

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// Command creates and returns the recording command with its subcommands
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recording",
		Short: "Record texts sentence by sentence",
	}

	cmd.AddCommand(
		createCommand(ctx),
		submitCommand(ctx),
		updateCommand(ctx),
		progressCommand(ctx),
		regenerateCommand(ctx),
		backupsCommand(ctx),
	)
	return cmd
}

func parseID(arg, what string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return uint(id), nil
}

func readAudio(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	return data, nil
}

func createCommand(ctx *app.Context) *cobra.Command {
	var speaker string
	var tts, sr bool

	cmd := &cobra.Command{
		Use:   "create <text-id>",
		Short: "Start recording a text",
		Long:  `Create the text recording of a speaker. At least one of --tts and --sr must be granted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			textID, err := parseID(args[0], "text id")
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				user, err := a.Repos.Users.GetByUsername(cmd.Context(), speaker)
				if err != nil {
					return err
				}
				rec, err := a.Recordings.CreateTextRecording(cmd.Context(), user.ID, textID, tts, sr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created text recording %d for %s\n", rec.ID, speaker)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&speaker, "speaker", "s", "", "Username of the speaker")
	cmd.Flags().BoolVar(&tts, "tts", false, "Grant use for speech synthesis")
	cmd.Flags().BoolVar(&sr, "sr", false, "Grant use for speech recognition")
	_ = cmd.MarkFlagRequired("speaker")
	return cmd
}

func submitCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <recording-id> <index> <audio-file>",
		Short: "Record the next sentence of a text",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := parseID(args[0], "recording id")
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid sentence index %q", args[1])
			}
			audio, err := readAudio(args[2])
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				srec, err := a.Recordings.CreateSentenceRecording(cmd.Context(), recID, index, audio)
				if err != nil {
					return err
				}
				printSentenceRecording(cmd, srec)
				return nil
			})
		},
	}
}

func updateCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "update <sentence-recording-id> <audio-file>",
		Short: "Re-record a sentence, keeping the previous take as a backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "sentence recording id")
			if err != nil {
				return err
			}
			audio, err := readAudio(args[1])
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				srec, err := a.Recordings.UpdateSentenceRecording(cmd.Context(), id, audio)
				if err != nil {
					return err
				}
				printSentenceRecording(cmd, srec)
				return nil
			})
		},
	}
}

func printSentenceRecording(cmd *cobra.Command, srec *entities.SentenceRecording) {
	fmt.Fprintf(cmd.OutOrStdout(), "Sentence recording %d: index %d, %.2f s, %s\n",
		srec.ID, srec.Index, srec.Length, srec.Validity)
}

func progressCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <recording-id>",
		Short: "Show how far a text recording is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := parseID(args[0], "recording id")
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				p, err := a.Recordings.Progress(cmd.Context(), recID)
				if err != nil {
					return err
				}
				rec, err := a.Recordings.GetTextRecording(cmd.Context(), recID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "State:      %s\n", p.State())
				fmt.Fprintf(out, "Sentences:  %d of %d\n", p.Completed, p.Total)
				if !p.Finished {
					fmt.Fprintf(out, "Next index: %d\n", p.Active)
				}
				fmt.Fprintf(out, "Time:       %.2f s (%.2f s with re-records)\n", rec.RecTimeWithoutRep, rec.RecTimeWithRep)
				if rec.TranscriptPath != "" {
					fmt.Fprintf(out, "Audio:      %s\nTranscript: %s\n", rec.AudioPath, rec.TranscriptPath)
				}
				return nil
			})
		},
	}
}

func regenerateCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <recording-id>",
		Short: "Rebuild the audio and transcript of a finished text recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := parseID(args[0], "recording id")
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				rec, err := a.Recordings.Regenerate(cmd.Context(), recID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %s and %s\n", rec.AudioPath, rec.TranscriptPath)
				return nil
			})
		},
	}
}

func backupsCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "backups <recording-id>",
		Short: "List the sentence recordings of a text recording with their superseded takes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := parseID(args[0], "recording id")
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				srecs, err := a.Recordings.SentenceRecordings(cmd.Context(), recID)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "INDEX\tID\tVERSION\tLENGTH\tVALIDITY\tUPDATED\tAUDIO")
				for i := range srecs {
					srec := &srecs[i]
					backups, err := a.Recordings.Backups(cmd.Context(), srec.ID)
					if err != nil {
						return err
					}
					for n, b := range backups {
						fmt.Fprintf(w, "%d\t%d\tbackup %d\t%.2f\t%s\t%s\t%s\n",
							srec.Index, srec.ID, n+1, b.Length, b.Validity, b.LastUpdated.UTC().Format("2006-01-02 15:04:05"), b.AudioPath)
					}
					fmt.Fprintf(w, "%d\t%d\tcurrent\t%.2f\t%s\t%s\t%s\n",
						srec.Index, srec.ID, srec.Length, srec.Validity, srec.LastUpdated.UTC().Format("2006-01-02 15:04:05"), srec.AudioPath)
				}
				return w.Flush()
			})
		},
	}
}
