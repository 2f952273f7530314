package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	simstream "github.com/simstream/go-simstream"
)

// runToken 解码 Token 并打印其地址与流 ID
func runToken(args []string) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("至少需要一个 Token")
	}

	for _, arg := range fs.Args() {
		token, err := simstream.ParseToken(arg)
		if err != nil {
			return fmt.Errorf("解析 Token %q 失败: %w", arg, err)
		}
		fmt.Printf("%s\n  address: %s\n  stream:  %d\n", arg, token.AddrPort(), token.StreamID())
	}
	return nil
}
