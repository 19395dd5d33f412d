package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vigenere-go/internal/config"
	"github.com/vigenere-go/internal/dao"
	"github.com/vigenere-go/internal/encryption"
	"github.com/vigenere-go/internal/mirror"
	"github.com/vigenere-go/internal/storage"
	"github.com/vigenere-go/internal/trace"
)

const usageLine = "Exact 3 parameters required - [action] [key] [target]"

// exitError has already been reported to the user
type exitError struct{ err error }

func (e *exitError) Error() string { return e.err.Error() }

type app struct {
	out        io.Writer
	v          *viper.Viper
	cfg        *config.Config
	configFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: viper.New()}

	root := &cobra.Command{
		Use:   "vigenere <action> <key> <target>",
		Short: "Vigenère cipher for text and directory trees",
		Long: "Actions:\n" +
			"  encrypt     encrypt <target> as literal text\n" +
			"  decrypt     decrypt <target> as literal text\n" +
			"  encryptDir  mirror directory <target> into <target>.encrypted\n" +
			"  decryptDir  mirror directory <target> into its .decrypted sibling",
		Version: config.Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				fmt.Fprintln(out, usageLine)
				return &exitError{err: fmt.Errorf("%s, got %d", usageLine, len(args))}
			}
			return nil
		},
		PersistentPreRunE: a.setup,
		RunE:              a.runAction,
	}
	root.SetOut(out)
	root.SilenceErrors = true
	root.SilenceUsage = true
	// flags end at the action; keys and texts may start with "-"
	root.Flags().SetInterspersed(false)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: search ., ./configs, $HOME/.vigenere)")
	flags.String("alphabet", "", "alphabet preset: "+strings.Join(encryption.ListRegistered(), ", "))
	flags.String("charset", "", "literal alphabet, overrides --alphabet")
	flags.Int("workers", 0, "files transformed in parallel by directory actions")
	flags.Int("chunk-size", 0, "read size in bytes for file transforms")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "console or json")
	flags.Bool("journal", false, "record directory runs in the journal under data_dir")

	bindings := map[string]string{
		"cipher.alphabet":   "alphabet",
		"cipher.charset":    "charset",
		"mirror.workers":    "workers",
		"cipher.chunk_size": "chunk-size",
		"log.level":         "log-level",
		"log.format":        "log-format",
		"journal.enable":    "journal",
	}
	for key, name := range bindings {
		// only explicitly set flags override file and env values
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(a.serveCmd(), a.tokenCmd())
	return root
}

// execute runs the CLI. Three positional arguments always name an action,
// even when the action is spelled like a subcommand.
func execute(out io.Writer, args []string) error {
	root := newRootCmd(out)
	if positionalArgs(root, args) == 3 {
		root.RemoveCommand(root.Commands()...)
	}
	root.SetArgs(args)
	return root.Execute()
}

// positionalArgs counts the arguments after the leading global flags
func positionalArgs(root *cobra.Command, args []string) int {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return len(args) - i - 1
		case strings.HasPrefix(arg, "--"):
			name := arg[2:]
			if strings.Contains(name, "=") {
				continue
			}
			if f := root.PersistentFlags().Lookup(name); f != nil && f.NoOptDefVal == "" {
				i++ // value follows
			}
		case len(arg) > 1 && arg[0] == '-':
			// no global shorthand takes a value
		default:
			return len(args) - i
		}
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	setupLogging(cfg)
	return nil
}

func (a *app) runAction(cmd *cobra.Command, args []string) error {
	action, key, target := args[0], args[1], args[2]

	var (
		mode encryption.Mode
		dir  bool
	)
	switch strings.ToLower(action) {
	case "encrypt":
		action, mode = "encrypt", encryption.ModeEncrypt
	case "decrypt":
		action, mode = "decrypt", encryption.ModeDecrypt
	case "encryptdir":
		action, mode, dir = "encryptDir", encryption.ModeEncrypt, true
	case "decryptdir":
		action, mode, dir = "decryptDir", encryption.ModeDecrypt, true
	default:
		fmt.Fprintf(a.out, "action [%s] not implemented\n", action)
		return nil
	}

	cipher, err := a.newCipher(key)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("%s [%s], [%s]", action, key, target)
	fmt.Fprintln(a.out, header)

	if !dir {
		result, err := cipher.TransformString(mode, target)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, result)
		return nil
	}

	if err := a.mirrorDir(cmd.Context(), cipher, mode, target); err != nil {
		return err
	}
	fmt.Fprintln(a.out, header+" DONE")
	return nil
}

func (a *app) newCipher(key string) (*encryption.Vigenere, error) {
	charset, err := a.cfg.ResolveCharset()
	if err != nil {
		return nil, err
	}
	return encryption.NewVigenere(charset, key)
}

func (a *app) mirrorDir(ctx context.Context, cipher *encryption.Vigenere, mode encryption.Mode, target string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = trace.WithRunID(ctx, trace.GenerateRunID())

	m := mirror.New(cipher,
		mirror.WithWorkers(a.cfg.Mirror.Workers),
		mirror.WithChunkSize(a.cfg.Cipher.ChunkSize),
	)

	var (
		report *mirror.Report
		err    error
	)
	if mode == encryption.ModeDecrypt {
		report, err = m.DecryptDir(ctx, target, mirror.Unbounded)
	} else {
		report, err = m.EncryptDir(ctx, target, mirror.Unbounded)
	}
	if report == nil {
		log.Error().Err(err).Str("target", target).Msg("Directory mirror failed")
		return &exitError{err: err}
	}

	if a.cfg.Journal.Enable {
		a.record(report)
	}
	if err != nil {
		log.Error().Err(err).Str("run_id", report.RunID).Msg("Directory mirror interrupted")
		return &exitError{err: err}
	}
	return nil
}

// record journals a finished run. Journal failures are logged, not fatal.
func (a *app) record(report *mirror.Report) {
	store, err := storage.NewStore(a.cfg.DataDir)
	if err != nil {
		log.Error().Err(err).Str("data_dir", a.cfg.DataDir).Msg("Failed to open journal")
		return
	}
	defer store.Close()

	if _, err := dao.NewRunDAO(store).Record(report); err != nil {
		log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to record run")
		return
	}
	log.Debug().Str("run_id", report.RunID).Str("journal", store.Path()).Msg("Run recorded")
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch cfg.Log.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
