package main

import (
	"context"
	"fmt"
	"io"

	"bellastore/internal/catalog"
)

// dumpCatalog prints both catalog tables.
func dumpCatalog(ctx context.Context, out io.Writer, store *catalog.Store) error {
	ingressRows, err := store.IngressRows(ctx)
	if err != nil {
		return err
	}
	storageRows, err := store.StorageRows(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(ingressRows))
	for _, r := range ingressRows {
		rows = append(rows, []string{r.Hash, r.FilePath, r.Filename})
	}
	fmt.Fprintln(out, "Ingress")
	fmt.Fprintln(out, renderTable([]string{"Hash", "Filepath", "Filename"}, rows, nil))

	rows = make([][]string, 0, len(storageRows))
	for _, r := range storageRows {
		rows = append(rows, []string{r.Hash, r.FilePath, r.Filename, r.Name})
	}
	fmt.Fprintln(out, "Storage")
	fmt.Fprintln(out, renderTable([]string{"Hash", "Filepath", "Filename", "Name"}, rows, nil))
	return nil
}
