package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/vectorstore"
)

var inputFs = afero.NewOsFs()

// commandContext is cancelled on SIGINT/SIGTERM so retry sleeps and model
// calls stop early.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// readText returns the inline text or the content of file. Exactly one of
// them must be set.
func readText(text, file string) (string, error) {
	text = strings.TrimSpace(text)
	file = strings.TrimSpace(file)

	switch {
	case text != "" && file != "":
		return "", errors.New("use either --text or --file, not both")
	case text != "":
		return text, nil
	case file != "":
		data, err := afero.ReadFile(inputFs, file)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", file, err)
		}
		return string(data), nil
	default:
		return "", errors.New("either --text or --file is required")
	}
}

func readFile(flag, file string) (string, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return "", fmt.Errorf("--%s is required", flag)
	}
	data, err := afero.ReadFile(inputFs, file)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", file, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}

// fatalOnError logs err and exits. Missing documents get the message
// external callers match on.
func fatalOnError(logger *zap.Logger, step string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, vectorstore.ErrNotFound) {
		logger.Fatal(vectorstore.ErrNotFound.Error(), zap.String("during", step), zap.Error(err))
	}
	logger.Fatal(step, zap.Error(err))
}

func stringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
