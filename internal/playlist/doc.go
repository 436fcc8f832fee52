// Package playlist renders and rewrites the HLS manifests hlspack publishes.
//
// Master builds the top-level manifest from a list of variants. The media
// helpers operate line by line on ffmpeg-written VOD playlists: RewriteURIs
// renames segment or sub-manifest references, and ScopeKeys rewrites the
// EXT-X-KEY tags so only selected segments remain under the content key.
package playlist
