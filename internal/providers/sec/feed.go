package sec

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/utils"
)

var accessionPattern = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)

// feedFilings reads the browse-edgar Atom feed for cik. The feed carries no
// report date, so the fiscal year is approximated from the filing date and
// refined later from the company facts.
func (f *filingIndexFetcher) feedFilings(ctx context.Context, cik string, oldest int) ([]models.Filing, error) {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("type", "10-")
	q.Set("dateb", "")
	q.Set("owner", "include")
	q.Set("count", "100")
	q.Set("output", "atom")
	u := f.opts.BrowseURL + "?" + q.Encode()

	var feed *gofeed.Feed
	_, err := f.getRaw(ctx, "load filing feed", u, "application/atom+xml", func(b []byte) error {
		parsed, err := gofeed.NewParser().Parse(bytes.NewReader(b))
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f.feedItems(ctx, cik, feed.Items, oldest), nil
}

func (f *filingIndexFetcher) feedItems(ctx context.Context, cik string, items []*gofeed.Item, oldest int) []models.Filing {
	log := logging.FromContext(ctx)
	if len(items) > f.opts.MaxFilings {
		items = items[:f.opts.MaxFilings]
	}

	out := make([]models.Filing, 0, len(items))
	for _, it := range items {
		form := feedForm(it)
		kind, ok := models.ParseFormKind(form)
		if !ok {
			continue
		}
		accn := feedAccession(it)
		if accn == "" {
			log.Debug().Str("cik", cik).Str("title", it.Title).Msg("dropping feed entry without accession number")
			continue
		}
		filed := feedDate(it)
		fy := filed.Year()
		if filed.IsZero() || fy < oldest {
			continue
		}
		filing := models.Filing{
			CIK:         cik,
			AccessionNo: accn,
			FormType:    form,
			Kind:        kind,
			FiledDate:   filed,
			FiscalYear:  fy,
		}
		if !kind.Annual() {
			filing.FiscalQuarter = utils.QuarterOfMonth(filed)
		}
		out = append(out, filing)
	}
	sortFilings(out)
	return out
}

// feedForm reads the form type from the entry categories, falling back to
// the leading token of the title ("10-K  - Annual report ...").
func feedForm(it *gofeed.Item) string {
	title := ""
	if fields := strings.Fields(it.Title); len(fields) > 0 {
		title = fields[0]
	}
	for _, c := range append(append([]string{}, it.Categories...), title) {
		c = strings.TrimSpace(c)
		if _, ok := models.ParseFormKind(c); ok {
			return c
		}
	}
	return title
}

// feedAccession extracts the accession number from the entry id
// ("urn:tag:sec.gov,2008:accession-number=0000320193-24-000123"), the
// content, or the link.
func feedAccession(it *gofeed.Item) string {
	for _, s := range []string{it.GUID, it.Content, it.Description, it.Link} {
		if m := accessionPattern.FindString(s); m != "" {
			return m
		}
	}
	return ""
}

func feedDate(it *gofeed.Item) time.Time {
	if it.UpdatedParsed != nil {
		return it.UpdatedParsed.UTC()
	}
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC()
	}
	return time.Time{}
}

// periodKey is the sort key for a filing: its period end, or an
// approximation from fiscal year and quarter when the end is unknown.
func periodKey(f models.Filing) time.Time {
	if !f.PeriodEnd.IsZero() {
		return f.PeriodEnd
	}
	month := time.December
	if f.FiscalQuarter > 0 {
		month = time.Month(f.FiscalQuarter * 3)
	}
	return time.Date(f.FiscalYear, month, 28, 0, 0, 0, 0, time.UTC)
}
