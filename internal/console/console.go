// Package console is the line oriented debug console of the sandbox.
//
// Lines are executed inside an exclusive system. Commands that change the
// world defer their work to the command queue, and their outcome is appended
// to the reply once the sync point has applied it.
package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/core/system"
)

const SystemName = "console"

var (
	ErrCommandExists = errors.New("console command already registered")
	ErrClosed        = errors.New("console is closed")
)

// Command is one console verb.
type Command struct {
	Name  string
	Usage string
	About string
	// Args is the number of required positional arguments; Optional more may follow.
	Args     int
	Optional int
	Flags    []string
	Run      func(call *Call)
}

// Call is a single invocation of a command.
type Call struct {
	World    donburi.World
	Commands *command.Queue
	Args     []string
	Flags    map[string]bool

	resp *Response
}

// Arg returns the i-th positional argument or "".
func (c *Call) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

func (c *Call) Reply(format string, args ...any) {
	c.resp.add(fmt.Sprintf(format, args...))
}

// Defer queues cmd and replies with success once it has been applied, or
// with the rejection reason.
func (c *Call) Defer(cmd command.Command, success string) {
	resp := c.resp
	resp.pending.Add(1)
	c.Commands.Push(command.Func(func(w donburi.World) error {
		defer resp.pending.Done()
		if err := cmd.Apply(w); err != nil {
			resp.add("Rejected: " + err.Error())
			return err
		}
		resp.add(success)
		return nil
	}))
}

// Response collects the reply lines of one call.
type Response struct {
	mu      sync.Mutex
	lines   []string
	pending sync.WaitGroup
}

func (r *Response) add(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Lines returns the replies gathered so far.
func (r *Response) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

type request struct {
	line string
	done chan []string
}

type delivery struct {
	req  request
	resp *Response
}

// Console parses and dispatches command lines.
type Console struct {
	logger log.Log

	mu       sync.Mutex
	commands map[string]*Command
	order    []string
	pending  []request
	inflight []delivery
	closed   bool
}

func New(logger log.Log) *Console {
	c := &Console{
		logger:   logger.With(log.String("component", "console")),
		commands: make(map[string]*Command),
	}
	_ = c.Add(Command{
		Name:  "help",
		About: "Lists console commands",
		Run:   c.help,
	})
	return c
}

func (c *Console) Add(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, cmd.Name)
	}
	c.commands[cmd.Name] = &cmd
	c.order = append(c.order, cmd.Name)
	return nil
}

func (c *Console) lookup(name string) (*Command, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd, ok := c.commands[name]
	return cmd, ok
}

// Execute runs line right away. The caller must hold exclusive access to w.
// Deferred outcomes land in the response when queue is flushed.
func (c *Console) Execute(w donburi.World, queue *command.Queue, line string) *Response {
	resp := &Response{}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return resp
	}

	cmd, ok := c.lookup(fields[0])
	if !ok {
		resp.add(fmt.Sprintf("Unknown command '%s'. Type 'help' for a list of commands.", fields[0]))
		return resp
	}

	args, flags, err := splitFlags(fields[1:], cmd.Flags)
	if err == nil && (len(args) < cmd.Args || len(args) > cmd.Args+cmd.Optional) {
		err = errors.New("wrong number of arguments")
	}
	if err != nil {
		resp.add(fmt.Sprintf("%s. Usage: %s %s", capitalize(err.Error()), cmd.Name, cmd.Usage))
		return resp
	}

	c.logger.Debug("Executing console command", log.String("command", cmd.Name), log.Strings("args", args))
	cmd.Run(&Call{World: w, Commands: queue, Args: args, Flags: flags, resp: resp})
	return resp
}

// Submit hands line to the console system and waits for its reply, which
// arrives after the sync point of the tick that executed it.
func (c *Console) Submit(ctx context.Context, line string) ([]string, error) {
	req := request{line: line, done: make(chan []string, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending = append(c.pending, req)
	c.mu.Unlock()

	select {
	case lines := <-req.done:
		return lines, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// System executes the submitted lines. Register it in the exclusive stage
// and call Deliver after every sync point.
func (c *Console) System() system.System {
	return system.NewFunc(SystemName, func(_ context.Context, sc *system.Context) error {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()

		for _, req := range batch {
			resp := c.Execute(sc.World, sc.Commands, req.line)
			c.mu.Lock()
			c.inflight = append(c.inflight, delivery{req: req, resp: resp})
			c.mu.Unlock()
		}
		return nil
	})
}

// Deliver sends the replies of the lines executed this tick.
func (c *Console) Deliver() {
	c.mu.Lock()
	batch := c.inflight
	c.inflight = nil
	c.mu.Unlock()

	for _, d := range batch {
		d.resp.pending.Wait()
		d.req.done <- d.resp.Lines()
	}
}

// Close fails every waiting and future Submit.
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, req := range c.pending {
		req.done <- []string{ErrClosed.Error()}
	}
	c.pending = nil
}

func (c *Console) help(call *Call) {
	c.mu.Lock()
	names := slices.Clone(c.order)
	c.mu.Unlock()
	slices.Sort(names)

	for _, name := range names {
		cmd, _ := c.lookup(name)
		usage := strings.TrimSpace(cmd.Name + " " + cmd.Usage)
		call.Reply("%s - %s", usage, cmd.About)
	}
}

// splitFlags separates "--name" switches from positional arguments.
func splitFlags(fields, allowed []string) ([]string, map[string]bool, error) {
	var args []string
	flags := make(map[string]bool)
	for _, f := range fields {
		name, isFlag := strings.CutPrefix(f, "--")
		if !isFlag {
			args = append(args, f)
			continue
		}
		if !slices.Contains(allowed, name) {
			return nil, nil, fmt.Errorf("unknown flag '%s'", f)
		}
		flags[name] = true
	}
	return args, flags, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
