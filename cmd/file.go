// Copyright 2024 Google Inc. All Rights Reserved.
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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ellabellla/servefs/internal/vfs"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Operate on a file.",
}

func withFile(cmd *cobra.Command, path string, fn func(f *vfs.File) error) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := vfs.OpenFile(store, path)
	if err != nil {
		return err
	}
	return fn(f)
}

var fileExistsCmd = &cobra.Command{
	Use:   "exists PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Check whether a file exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFile(cmd, args[0], func(f *vfs.File) error {
			ok, err := f.Exists(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		})
	},
}

var fileMkCmd = &cobra.Command{
	Use:   "mk PATH DATA KIND",
	Args:  cobra.ExactArgs(3),
	Short: "Create a file. KIND is one of text, exec, file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := vfs.ParseKind(args[2])
		if err != nil {
			return err
		}
		return withFile(cmd, args[0], func(f *vfs.File) error {
			return f.Mk(cmd.Context(), args[1], kind)
		})
	},
}

var fileDelCmd = &cobra.Command{
	Use:   "del PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Delete a file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFile(cmd, args[0], func(f *vfs.File) error {
			return f.Del(cmd.Context())
		})
	},
}

var fileRnCmd = &cobra.Command{
	Use:   "rn PATH NEW_NAME",
	Args:  cobra.ExactArgs(2),
	Short: "Rename a file in place.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFile(cmd, args[0], func(f *vfs.File) error {
			return f.Rename(cmd.Context(), args[1])
		})
	},
}

var fileMvCmd = &cobra.Command{
	Use:   "mv PATH NEW_DIR",
	Args:  cobra.ExactArgs(2),
	Short: "Move a file to a new parent directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFile(cmd, args[0], func(f *vfs.File) error {
			return f.Mv(cmd.Context(), args[1])
		})
	},
}

var fileReadCmd = &cobra.Command{
	Use:   "read PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Print a file's raw (data, kind) tuple.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFile(cmd, args[0], func(f *vfs.File) error {
			data, kind, err := f.Read(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s, %s\n", data, kind)
			return nil
		})
	},
}

var fileWriteCmd = &cobra.Command{
	Use:   "write PATH DATA KIND",
	Args:  cobra.ExactArgs(3),
	Short: "Overwrite a file's (data, kind) tuple.",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := vfs.ParseKind(args[2])
		if err != nil {
			return err
		}
		return withFile(cmd, args[0], func(f *vfs.File) error {
			return f.Write(cmd.Context(), args[1], kind)
		})
	},
}

func init() {
	fileCmd.AddCommand(fileExistsCmd, fileMkCmd, fileDelCmd, fileRnCmd, fileMvCmd, fileReadCmd, fileWriteCmd)
}
