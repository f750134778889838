// Package scraper runs one archive pass over a blog's liked posts.
//
// A run picks its post source once (the live likes API or a restored dump)
// and exactly one consumer:
//
//   - download: media go to {output}/pics and {output}/videos, then every
//     file is renamed with its like index and a manifest is written
//   - dump: posts are written to a JSON snapshot
//   - export: posts are rendered to one HTML page with media in the
//     export folder
//
// Usage:
//
//	cfg, err := config.Load("", flags)
//	if err != nil {
//	    return err
//	}
//
//	s := scraper.New(cfg, logger.GetLogger())
//	result, err := s.Run(ctx)
//	if errors.Is(err, scraper.ErrLikesUnavailable) {
//	    // bad API key or blog name
//	}
//
// Everything is sequential: one request or transfer is in flight at a time,
// and renaming starts only after the source is exhausted.
package scraper
