package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

// EnsureSchemaWithClient creates the dataset tables that do not exist yet,
// with schemas inferred from the row structs.
func EnsureSchemaWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) error {
	tables := []struct {
		name string
		row  interface{}
	}{
		{accountsTable, AccountRow{}},
		{transactionsTable, TransactionRow{}},
	}

	dataset := client.DatasetInProject(ds.ProjectID, ds.DatasetID)
	for _, tbl := range tables {
		schema, err := bigquery.InferSchema(tbl.row)
		if err != nil {
			return fmt.Errorf("EnsureSchema: inferring %s schema: %w", tbl.name, err)
		}

		t := dataset.Table(tbl.name)
		_, err = t.Metadata(ctx)
		if err == nil {
			continue
		}
		var apiErr *googleapi.Error
		if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
			return fmt.Errorf("EnsureSchema: reading %s metadata: %w", tbl.name, err)
		}

		if err := t.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return fmt.Errorf("EnsureSchema: creating %s: %w", tbl.name, err)
		}
	}
	return nil
}
