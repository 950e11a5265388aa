package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type page struct {
	Number int
	Limit  int
}

func (p page) offset() int {
	return (p.Number - 1) * p.Limit
}

// pageFromQuery reads `page` and `limit` query parameters, clamping both to
// sane values.
func pageFromQuery(c *gin.Context) page {
	p := page{Number: 1, Limit: defaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Number = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
		if p.Limit > maxPageSize {
			p.Limit = maxPageSize
		}
	}
	return p
}

// PaginatedResponse is the list envelope shared by user, recipe and
// subscription listings.
type PaginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func newPaginatedResponse(c *gin.Context, count int64, p page, results interface{}) PaginatedResponse {
	resp := PaginatedResponse{Count: count, Results: results}
	if int64(p.Number*p.Limit) < count {
		resp.Next = pageURL(c, p.Number+1)
	}
	if p.Number > 1 {
		resp.Previous = pageURL(c, p.Number-1)
	}
	return resp
}

func pageURL(c *gin.Context, number int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
