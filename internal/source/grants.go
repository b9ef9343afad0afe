package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// GrantsName is the registry key of the NSF awards source.
const GrantsName = "grants"

const grantsPrintFields = "id,title,startDate,expDate,fundsObligatedAmt,fundProgramName,agency,awardee"

// Grants aggregates NSF awards that start inside a bucket.
type Grants struct {
	base
	endpoint string
}

// NewGrants builds the NSF awards source.
func NewGrants(opts Options) (*Grants, error) {
	b, err := newBase(GrantsName, []schema.Column{
		intCol("grant_count"),
		floatCol("total_amount_usd"),
		floatCol("avg_amount_usd"),
		intCol("institutions"),
	}, time.Second, 30*time.Second, nil)
	if err != nil {
		return nil, err
	}
	return &Grants{base: b, endpoint: opts.endpoint(GrantsName, "https://www.research.gov/awardapi-service/v1/awards.json")}, nil
}

// amount accepts both "$1,234.00" strings and bare numbers.
type amount float64

var _ json.Unmarshaler = (*amount)(nil)

func (a *amount) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = amount(f)
	return nil
}

type grantsResponse struct {
	Response struct {
		Award []struct {
			Funds   amount `json:"fundsObligatedAmt"`
			Awardee string `json:"awardee"`
		} `json:"award"`
	} `json:"response"`
}

// FetchBucket requests up to 500 awards with a start date inside the bucket.
func (g *Grants) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	params := url.Values{}
	params.Set("keyword", term)
	params.Set("startDateStart", b.Start.Format("01/02/2006"))
	params.Set("startDateEnd", b.End.Format("01/02/2006"))
	params.Set("printFields", grantsPrintFields)
	params.Set("offset", "1")
	params.Set("rpp", "500")

	var resp grantsResponse
	if err := g.client.GetJSON(ctx, g.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	var total float64
	institutions := make(map[string]struct{})
	for _, award := range resp.Response.Award {
		total += float64(award.Funds)
		if award.Awardee != "" {
			institutions[award.Awardee] = struct{}{}
		}
	}
	count := len(resp.Response.Award)
	var avg float64
	if count > 0 {
		avg = total / float64(count)
	}
	return schema.Metrics{
		"grant_count":      int64(count),
		"total_amount_usd": total,
		"avg_amount_usd":   avg,
		"institutions":     int64(len(institutions)),
	}, nil
}
