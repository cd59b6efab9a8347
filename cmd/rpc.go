package cmd

import (
	"context"
	"io"
	"os"

	"github.com/kamusis/steamlaunch/internal/app"
	"github.com/kamusis/steamlaunch/internal/plugin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc <json-request>",
	Short: "Answer one JSON-RPC request from a launcher host",
	Long: `Entry point for Wox-style launcher hosts. The host passes a request such as

  {"method":"query","parameters":["portal"]}

and reads the response (or a Wox.ShowMsg notification) from stdout. Nothing
else is ever written to stdout; diagnostics go to the log file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRPC(cmd.Context(), os.Stdout, args[0])
	},
}

func init() {
	rootCmd.AddCommand(rpcCmd)
}

// serveRPC handles a single host request. Failures of a well-formed request are
// reported to the user through the host and do not fail the process.
func serveRPC(ctx context.Context, w io.Writer, arg string) error {
	req, err := plugin.ParseRequest(arg)
	if err != nil {
		logger.Error("bad rpc request", zap.String("arg", arg), zap.Error(err))
		return err
	}
	logger.Debug("rpc request", zap.String("method", req.Method))

	msgr := &plugin.Messenger{W: w}
	notify := app.NotifierFunc(func(title, subtitle string) {
		if err := msgr.ShowMsg(title, subtitle); err != nil {
			logger.Warn("cannot write notification", zap.Error(err))
		}
	})

	if req.Method == plugin.MethodQuery {
		text, err := req.QueryText()
		if err != nil {
			return err
		}
		a, err := openApp(ctx, notify)
		if err != nil {
			logger.Error("cannot open library", zap.Error(err))
			return plugin.WriteResponse(w, nil)
		}
		return plugin.WriteResponse(w, a.Items(text))
	}

	action, err := plugin.DecodeAction(req)
	if err != nil {
		logger.Error("bad rpc action", zap.String("method", req.Method), zap.Error(err))
		return err
	}
	a, err := newApp(notify)
	if err != nil {
		return err
	}
	msgr.Icon = a.LauncherIcon()
	if err := a.Invoke(ctx, action); err != nil {
		logger.Error("action failed", zap.String("method", req.Method), zap.Error(err))
		notify.Notify("Steam launcher error", err.Error())
	}
	return nil
}
