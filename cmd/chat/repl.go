package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/render/terminal"
	"github.com/tripmind/assistant/internal/services/conversation"
)

const chatListLimit = 20

const helpText = `Commands:
  /submit <value>  answer the latest open widget
  /new             start a new chat
  /load <chat id>  load a saved chat
  /chats           list saved chats
  /cancel          stop the current reply
  /quit            exit`

// chatLister lists saved chats.
type chatLister interface {
	List(ctx context.Context, userID string, limit int64) ([]*models.Chat, error)
}

// repl reads commands and messages and drives the engine. Replies stream in
// the background, so a reply can be cancelled while it is running.
type repl struct {
	engine  *conversation.Engine
	printer *terminal.Printer
	chats   chatLister
	userID  string
	out     io.Writer
}

// run reads lines from in until /quit, EOF or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !r.handle(ctx, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// handle runs one input line. It returns false to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		r.report(r.send(ctx, line))
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/submit":
		r.report(r.submit(ctx, arg))
	case "/new":
		if err := r.engine.NewChat(); err != nil {
			r.report(err)
			break
		}
		r.printer.Reset("new chat")
	case "/load":
		r.report(r.load(ctx, arg))
	case "/chats":
		r.report(r.list(ctx))
	case "/cancel":
		r.engine.Cancel()
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", cmd)
	}
	return true
}

func (r *repl) send(ctx context.Context, text string) error {
	_, err := r.engine.Send(ctx, text)
	return err
}

func (r *repl) submit(ctx context.Context, arg string) error {
	state := r.engine.Snapshot()
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := &state.Messages[i]
		if !msg.HasOpenUI() {
			continue
		}
		value, err := terminal.ParseSubmission(msg.InteractiveComponent(), arg)
		if err != nil {
			return err
		}
		_, err = r.engine.SubmitWidget(ctx, msg.ID, value)
		return err
	}
	return errors.New("there is no open widget to answer")
}

func (r *repl) load(ctx context.Context, chatID string) error {
	if chatID == "" {
		return errors.New("usage: /load <chat id>")
	}
	if r.engine.Busy() {
		return conversation.ErrTurnInFlight
	}
	r.printer.Reset("chat " + chatID)
	return r.engine.LoadChat(ctx, chatID)
}

func (r *repl) list(ctx context.Context) error {
	if r.chats == nil {
		return errors.New("chat history is disabled")
	}
	chats, err := r.chats.List(ctx, r.userID, chatListLimit)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(r.out, "no saved chats")
		return nil
	}
	for _, c := range chats {
		fmt.Fprintf(r.out, "%s  %s  %s\n", c.ID, c.Title, humanize.Time(c.UpdatedAt))
		if c.LastMessage != "" {
			fmt.Fprintf(r.out, "    %s\n", c.LastMessage)
		}
	}
	return nil
}

func (r *repl) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, conversation.ErrTurnInFlight):
		fmt.Fprintln(r.out, "still answering, /cancel to stop")
	case domainerrors.IsNotFound(err):
		fmt.Fprintf(r.out, "error: %s\n", domainerrors.UserMessage(err))
	case domainerrors.IsTimeout(err):
		fmt.Fprintln(r.out, "error: the chat service did not answer in time, try again")
	default:
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}
