package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuakami/sysprop"
)

// getCmd 读取属性
func getCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print the value of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				value, ok, err := c.Read(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("property %s is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

// getBoolCmd 以布尔形式读取属性
func getBoolCmd(f *flags) *cobra.Command {
	var def bool
	cmd := &cobra.Command{
		Use:   "getbool <name>",
		Short: "Print a property interpreted as a boolean",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				value, err := c.ReadBool(args[0], def)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&def, "default", false, "value printed when the property is unset or not a boolean")
	return cmd
}

// setCmd 写入属性
func setCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				return c.Write(args[0], args[1])
			})
		},
	}
}

// listCmd 列出全部属性
func listCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all visible properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				var lines []string
				err := c.Foreach(func(name, value string) {
					lines = append(lines, fmt.Sprintf("[%s]: [%s]", name, value))
				})
				if err != nil {
					return err
				}
				// 存储不保证顺序
				sort.Strings(lines)
				for _, line := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
}

// waitCmd 等待属性变化或等于某个值
func waitCmd(f *flags) *cobra.Command {
	var value string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait <name>",
		Short: "Block until a property changes, or until it holds --value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				w, err := c.Watch(args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("value") {
					return w.WaitForValue(value, timeoutOf(timeout))
				}
				if err := prime(w); err != nil {
					return err
				}
				if err := w.Wait(timeoutOf(timeout)); err != nil {
					return err
				}
				current, err := w.Value()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), current)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "wait until the property holds this value")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (0 waits forever)")
	return cmd
}

// watchCmd 持续打印属性的每次变化
func watchCmd(f *flags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Print a property every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(f, func(c *sysprop.Client) error {
				w, err := c.Watch(args[0])
				if err != nil {
					return err
				}
				for i := 0; count <= 0 || i < count; i++ {
					if err := w.Wait(sysprop.Forever); err != nil {
						return err
					}
					value, err := w.Value()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s (serial %d)\n", w.Name(), value, w.Serial())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many changes (0 runs forever)")
	return cmd
}

// prime 记录属性当前的序列号，之后的 Wait 只报告新的变化
//
// 属性还不存在时什么也不做，随后的 Wait 会等待它被创建。
func prime(w *sysprop.Watcher) error {
	err := w.Wait(0)
	if err == nil || errors.Is(err, sysprop.ErrWaitTimedOut) {
		return nil
	}
	return err
}
