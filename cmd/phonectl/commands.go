package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/mouthpiece/internal/app"
	"github.com/MrWong99/mouthpiece/internal/config"
	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/audio/wav"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

// Shared flags.
var (
	langFlag string
	compact  bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "phonectl",
		Short:         "Inspect phoneme parsing, viseme timelines and scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&langFlag, "lang", "l", "en", "target language (ISO code or name)")
	root.PersistentFlags().BoolVar(&compact, "compact", false, "print single-line JSON")

	root.AddCommand(parseCmd())
	root.AddCommand(lettersCmd())
	root.AddCommand(visemeCmd())
	root.AddCommand(timelineCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(detectCmd())
	return root
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>...",
		Short: "Convert text into a phoneme sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language()
			if err != nil {
				return err
			}
			seq := g2p.New().ParseText(strings.Join(args, " "), lang)
			return printJSON(cmd, map[string]any{
				"language": lang,
				"phonemes": seq,
				"symbols":  seq.String(),
			})
		},
	}
}

func lettersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "letters",
		Short: "List the practice letters of a language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lang, err := language()
			if err != nil {
				return err
			}
			return printJSON(cmd, g2p.New().Letters(lang))
		},
	}
}

type visemeInfo struct {
	Token string       `json:"token"`
	Frame viseme.Frame `json:"frame"`
	Name  string       `json:"name"`
}

func visemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viseme <token>...",
		Short: "Resolve phoneme tokens to mouth frames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := viseme.NewResolver()
			out := make([]visemeInfo, len(args))
			for i, tok := range args {
				f := res.Resolve(tok)
				out[i] = visemeInfo{Token: tok, Frame: f, Name: f.String()}
			}
			return printJSON(cmd, out)
		},
	}
}

func timelineCmd() *cobra.Command {
	var (
		letter    string
		msPerUnit int
		padding   int
		pause     int
	)
	cmd := &cobra.Command{
		Use:   "timeline [text]...",
		Short: "Build the viseme timeline for a word or a letter",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := animation.NewBuilder(animation.WithPauseMs(pause))
			res := viseme.NewResolver()

			var tl animation.Timeline
			switch {
			case letter != "":
				tl = b.BuildLetter(res, letter)
			case len(args) > 0:
				lang, err := language()
				if err != nil {
					return err
				}
				seq := g2p.New().ParseText(strings.Join(args, " "), lang)
				tl = b.Build(res, seq, msPerUnit, padding)
			default:
				return errors.New("timeline: give a text or --letter")
			}
			return printJSON(cmd, map[string]any{
				"timeline":    tl,
				"duration_ms": tl.Duration(),
			})
		},
	}
	cmd.Flags().StringVar(&letter, "letter", "", "build the consonant-vowel timeline for a letter sound")
	cmd.Flags().IntVar(&msPerUnit, "ms-per-unit", animation.DefaultMsPerUnit, "milliseconds per phoneme")
	cmd.Flags().IntVar(&padding, "padding", animation.DefaultEdgePaddingMs, "neutral padding at both ends in milliseconds")
	cmd.Flags().IntVar(&pause, "pause", animation.DefaultPauseMs, "pause length in milliseconds")
	return cmd
}

func scoreCmd() *cobra.Command {
	var (
		target   string
		symbols  string
		detected string
		letter   string
		policy   string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a detected phoneme sequence against a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lang, err := language()
			if err != nil {
				return err
			}
			tgt, p, err := scoringTarget(lang, target, symbols, letter, policy)
			if err != nil {
				return err
			}
			got := phoneme.NewSequence(strings.Fields(detected)...)
			return printJSON(cmd, p.Score(detect.WithoutPauses(tgt), got))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "target text, converted with the language rules")
	cmd.Flags().StringVar(&symbols, "target-phonemes", "", "space-separated target phonemes")
	cmd.Flags().StringVar(&letter, "letter", "", "score against a practice letter with its variants")
	cmd.Flags().StringVar(&detected, "detected", "", "space-separated detected phonemes")
	cmd.Flags().StringVar(&policy, "policy", "", "scoring policy (default: greedy for words, strict-single for letters)")
	return cmd
}

func detectCmd() *cobra.Command {
	var (
		cfgPath string
		word    string
		letter  string
	)
	cmd := &cobra.Command{
		Use:   "detect <file.wav>",
		Short: "Send a recording to the configured primary backend and score it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			tgt, policy, err := scoringTarget(lang, word, "", letter, "")
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			audio, _, err := wav.Normalize(raw, wav.DefaultSampleRate)
			if err != nil {
				return err
			}

			engine := g2p.New()
			reg := config.NewRegistry()
			app.RegisterBuiltinDetectors(reg, engine)
			backend, err := reg.CreateDetector(cfg.Detection.Primary)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Detection.AttemptTimeout)
			defer cancel()
			text := word
			if letter != "" {
				text = letter
			}
			res, err := backend.Detect(ctx, detect.Request{Audio: audio, Filename: args[0], Text: text, Language: lang})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"backend":  cfg.Detection.Primary.Name,
				"detected": res,
				"result":   policy.Score(detect.WithoutPauses(tgt), res.Phonemes),
			})
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "path to the YAML configuration file")
	cmd.Flags().StringVar(&word, "word", "", "target word")
	cmd.Flags().StringVar(&letter, "letter", "", "target letter")
	return cmd
}

// scoringTarget resolves the target sequence and policy from the score and
// detect flags. Exactly one of text, symbols or letter must be set.
func scoringTarget(lang phoneme.Language, text, symbols, letter, policyName string) (phoneme.Sequence, scoring.Policy, error) {
	set := 0
	for _, v := range []string{text, symbols, letter} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, nil, errors.New("give exactly one target: text, phonemes or letter")
	}

	if letter != "" {
		lt, ok := g2p.New().Letter(letter, lang)
		if !ok {
			return nil, nil, fmt.Errorf("unknown letter %q for language %s", letter, lang)
		}
		p, err := policyOr(policyName, scoring.StrictSingleName)
		if err != nil {
			return nil, nil, err
		}
		if _, strict := p.(scoring.StrictSingle); strict {
			p = scoring.StrictSingle{Variants: lt.Variants}
		}
		return phoneme.NewSequence(lt.Primary), p, nil
	}

	p, err := policyOr(policyName, scoring.GreedyName)
	if err != nil {
		return nil, nil, err
	}
	if symbols != "" {
		return phoneme.NewSequence(strings.Fields(symbols)...), p, nil
	}
	return g2p.New().ParseText(text, lang), p, nil
}

func policyOr(name, fallback string) (scoring.Policy, error) {
	if name == "" {
		name = fallback
	}
	return scoring.PolicyByName(name)
}

func language() (phoneme.Language, error) {
	lang, ok := phoneme.ParseLanguage(langFlag)
	if !ok {
		return "", fmt.Errorf("unsupported language %q", langFlag)
	}
	return lang, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
