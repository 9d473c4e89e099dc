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

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Operate on a directory.",
}

func withDir(cmd *cobra.Command, path string, fn func(d *vfs.Directory) error) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	d, err := vfs.OpenDirectory(store, path)
	if err != nil {
		return err
	}
	return fn(d)
}

var dirExistsCmd = &cobra.Command{
	Use:   "exists PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Check whether a directory exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			ok, err := d.Exists(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		})
	},
}

var dirMkCmd = &cobra.Command{
	Use:   "mk PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Create a directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			return d.Mk(cmd.Context())
		})
	},
}

var dirDelCmd = &cobra.Command{
	Use:   "del PATH",
	Args:  cobra.ExactArgs(1),
	Short: "Delete a directory. Files within cascade; sub-directories do not.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			return d.Del(cmd.Context())
		})
	},
}

var dirRnCmd = &cobra.Command{
	Use:   "rn PATH NEW_NAME",
	Args:  cobra.ExactArgs(2),
	Short: "Rename a directory in place.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			newPath, err := d.Rename(args[1])
			if err != nil {
				return err
			}
			return d.Mv(cmd.Context(), newPath)
		})
	},
}

var dirMvCmd = &cobra.Command{
	Use:   "mv PATH NEW_DIR",
	Args:  cobra.ExactArgs(2),
	Short: "Move a directory (and everything under it) to a new parent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			return d.Mv(cmd.Context(), args[1])
		})
	},
}

var dirContentsRecursive bool

var dirContentsCmd = &cobra.Command{
	Use:   "contents PATH",
	Args:  cobra.ExactArgs(1),
	Short: "List a directory's entries, optionally recursively.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDir(cmd, args[0], func(d *vfs.Directory) error {
			var files []vfs.FileEntry
			var dirs []vfs.DirEntry
			var err error
			if dirContentsRecursive {
				files, dirs, err = d.Recurse(cmd.Context())
			} else {
				files, dirs, err = d.Contents(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, sub := range dirs {
				fmt.Println(sub.Path)
			}
			for _, f := range files {
				fmt.Println(f.Name)
			}
			return nil
		})
	},
}

func init() {
	dirContentsCmd.Flags().BoolVarP(&dirContentsRecursive, "recursive", "r", false, "List contents recursively.")
	dirCmd.AddCommand(dirExistsCmd, dirMkCmd, dirDelCmd, dirRnCmd, dirMvCmd, dirContentsCmd)
}
