package main

import (
	"fmt"
	"os"

	"github.com/baidubce/bce-qianfan-sdk-go/cmd/qianfan/app"
)

func main() {
	if err := app.NewQianfanCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
