package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dvcrn/console-client/internal/api"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

func listFlags(cmd *cobra.Command, params *api.ListParams) {
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&params.PerPage, "per-page", 20, "Items per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search term")
	cmd.Flags().StringVar(&params.Sort, "sort", "", "Sort expression, e.g. created_at:desc")
}

func usersCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	var params api.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := st.console.API.ListUsers(cmd.Context(), params)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), []string{"ID", "Username", "Email", "Roles", "Active"})
			for _, u := range page.Items {
				table.Append([]string{u.ID, u.Username, u.Email, strings.Join(u.Roles, ","), strconv.FormatBool(u.IsActive)})
			}
			table.Render()
			cmd.Printf("Page %d of %d, %d users in total.\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	listFlags(list, &params)

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if len(args) == 1 {
				err = st.console.API.DeleteUser(cmd.Context(), args[0])
			} else {
				err = st.console.API.BatchDeleteUsers(cmd.Context(), args)
			}
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d user(s).\n", len(args))
			return nil
		},
	}

	cmd.AddCommand(list, del, meCmd(st))
	return cmd
}

func meCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := st.console.API.Me(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("ID:         %s\n", u.ID)
			cmd.Printf("Username:   %s\n", u.Username)
			cmd.Printf("Email:      %s\n", u.Email)
			cmd.Printf("Superuser:  %t\n", u.IsSuperuser)
			cmd.Printf("Roles:      %s\n", strings.Join(u.Roles, ", "))
			return nil
		},
	}
}

func rolesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles",
	}

	var params api.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := st.console.API.ListRoles(cmd.Context(), params)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), []string{"ID", "Code", "Name", "Permissions"})
			for _, r := range page.Items {
				table.Append([]string{r.ID, r.Code, r.Name, strconv.Itoa(len(r.Permissions))})
			}
			table.Render()
			return nil
		},
	}
	listFlags(list, &params)

	cmd.AddCommand(list)
	return cmd
}

func categoriesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Browse categories",
	}

	tree := &cobra.Command{
		Use:   "tree",
		Short: "Print the category tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := st.console.API.CategoryTree(cmd.Context())
			if err != nil {
				return err
			}
			printCategories(cmd.OutOrStdout(), roots, 0)
			return nil
		},
	}

	cmd.AddCommand(tree)
	return cmd
}

func printCategories(w io.Writer, cats []api.Category, depth int) {
	for _, c := range cats {
		fmt.Fprintf(w, "%s- %s (%s)\n", strings.Repeat("  ", depth), c.Name, c.Slug)
		printCategories(w, c.Children, depth+1)
	}
}

func filesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Upload and list stored files",
	}

	var profile string
	upload := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file under a storage profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			rec, err := st.console.API.UploadByProfile(cmd.Context(), profile, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			cmd.Printf("Uploaded %s as %s (%d bytes).\n", rec.OriginalFilename, rec.ObjectName, rec.FileSize)
			if rec.URL != "" {
				cmd.Println(rec.URL)
			}
			return nil
		},
	}
	upload.Flags().StringVar(&profile, "profile", "default", "Storage profile name")

	var listProfile, prefix string
	list := &cobra.Command{
		Use:   "list",
		Short: "List objects in a storage profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := st.console.API.ListFiles(cmd.Context(), listProfile, prefix)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), []string{"Object", "Size", "Last Modified"})
			for _, f := range files {
				table.Append([]string{f.ObjectName, strconv.FormatInt(f.Size, 10), f.LastModified})
			}
			table.Render()
			return nil
		},
	}
	list.Flags().StringVar(&listProfile, "profile", "default", "Storage profile name")
	list.Flags().StringVar(&prefix, "prefix", "", "Only list objects under this prefix")

	cmd.AddCommand(upload, list)
	return cmd
}
