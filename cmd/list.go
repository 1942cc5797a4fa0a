package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/fyerfyer/motorsport-site/internal/repository"
)

// listSubmissions 按状态列出最近的联系表单提交
func listSubmissions(w io.Writer, repo repository.SubmissionRepository, status string, limit int) error {
	filters := map[string]interface{}{}
	if status != "all" {
		st := models.SubmissionStatus(status)
		if !st.Valid() {
			return fmt.Errorf("%w: %s", models.ErrInvalidSubmissionStatus, status)
		}
		filters["status"] = st
	}

	subs, total, err := repo.List(0, limit, filters)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tNAME\tEMAIL\tERROR")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			s.ID, s.CreatedAt.Format(time.RFC3339), s.Status, s.FirstName, s.LastName, s.Email, s.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n%d of %d submissions\n", len(subs), total)
	return err
}
