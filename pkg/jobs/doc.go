// Package jobs remembers crawl jobs started from this machine.
//
// The Firecrawl API has no endpoint that lists crawls, so the CLI records
// every job it starts and refreshes the record whenever it fetches the job's
// status. Three backends are available: a JSON file (the default), a SQLite
// database and Redis for sharing job state between hosts.
//
//	store, err := jobs.Open(cfg)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	rec := jobs.NewRecord(resp.ID, url)
//	err = store.Save(ctx, rec)
package jobs
