/*
Copyright 2021 GramLabs, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package check

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/version"
	"golang.org/x/mod/semver"
)

// DefaultFeedURL is the release feed checked for newer versions
const DefaultFeedURL = "https://github.com/thestormforge/optunactl/releases.atom"

// VersionOptions are the options for checking the current version of the product
type VersionOptions struct {
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// FeedURL is the location of the release feed
	FeedURL string
	// Current overrides the version being compared, defaults to the build version
	Current string
}

// NewVersionCommand creates a new command for checking the current version of the product
func NewVersionCommand(o *VersionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Check for the latest version number",
		Long:  "Check the current version number against the latest release",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithContextE(o.checkVersion),
	}

	cmd.Flags().StringVar(&o.FeedURL, "feed-url", o.FeedURL, "the release feed `url` to check")
	_ = cmd.Flags().MarkHidden("feed-url")

	return cmd
}

func (o *VersionOptions) checkVersion(ctx context.Context) error {
	feed, err := gofeed.NewParser().ParseURLWithContext(o.FeedURL, ctx)
	if err != nil {
		return fmt.Errorf("unable to find latest version: %w", err)
	}

	current := o.Current
	if current == "" {
		current = version.GetInfo().String()
	}

	latest, link := "", ""
	for _, item := range feed.Items {
		v := releaseVersion(item)
		if !semver.IsValid(v) || semver.Prerelease(v) != "" {
			continue
		}
		if latest == "" || semver.Compare(v, latest) > 0 {
			latest, link = v, item.Link
		}
	}

	if latest == "" || semver.Compare(latest, current) <= 0 {
		_, _ = fmt.Fprintf(o.Out, "Version %s is the latest version\n", current)
		return nil
	}

	_, _ = fmt.Fprintf(o.Out, "A newer version (%s) is available (you have %s)\n\n", latest, current)
	if link != "" {
		_, _ = fmt.Fprintf(o.Out, "Download the latest version:\n%s\n", link)
	}
	return nil
}

// releaseVersion returns the tag of a release feed entry, GitHub puts it at the end of the link
func releaseVersion(item *gofeed.Item) string {
	if v := strings.TrimSpace(item.Title); semver.IsValid(v) {
		return v
	}
	if item.Link != "" {
		return path.Base(item.Link)
	}
	return ""
}
