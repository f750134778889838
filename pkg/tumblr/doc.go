// Package tumblr is a client for the Tumblr v2 likes endpoint.
//
// It covers the request side (Client, LikesURL), the response models
// (Post, Photo, TrailItem and the likes envelope), cursor pagination (Pager)
// and media classification (MediaURLs).
//
// Example usage:
//
//	client := tumblr.NewClient(apiKey, 30*time.Second, log)
//	pager := tumblr.NewPager(client, "staff", tumblr.MaxPageSize, log)
//
//	total, err := pager.Count(ctx)
//	if err != nil {
//	    return err
//	}
//	for post, err := range pager.Posts(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    for _, u := range tumblr.MediaURLs(post) {
//	        // fetch u into tumblr.MediaFolder(post.Kind())
//	    }
//	}
package tumblr
