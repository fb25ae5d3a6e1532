// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nodeview/pkg/k8s/client"
)

func contextCmd() *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Print the current kubeconfig context",
		Description: `Print the name of the kubeconfig context nodeview queries.
Running in-cluster without a kubeconfig prints "` + client.InClusterContext + `".`,
		Flags: []cli.Flag{
			kubeconfigFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			current, err := client.CurrentContext(cmd.String("kubeconfig"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(writerOf(cmd), current)
			return err
		},
	}
}

func writerOf(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
