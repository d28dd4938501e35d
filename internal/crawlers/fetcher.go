package crawlers

import (
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

// PageFetcher 报表页面获取器(使用Colly)
// 每次Fetch创建独立的collector,协程之间不共享会话
type PageFetcher struct {
	site    models.SiteConfig
	subset  string
	years   models.YearTable
	headers models.HeaderProvider
	client  *http.Client
}

// NewPageFetcher 创建页面获取器
// subset为报表子集代码(sbrep),headers可以为nil
func NewPageFetcher(site models.SiteConfig, subset string, years models.YearTable, headers models.HeaderProvider) *PageFetcher {
	return &PageFetcher{
		site:    site,
		subset:  subset,
		years:   years,
		headers: headers,
		client:  &http.Client{Timeout: site.Timeout},
	}
}

// BuildURL 构造报表请求地址
// prm参数内部以^分隔,原样交给Colly做URL规范化
func (f *PageFetcher) BuildURL(level models.Level, year int) (string, error) {
	params, err := f.years.Lookup(year)
	if err != nil {
		return "", err
	}

	prm := strings.Join([]string{
		"level=" + strconv.Itoa(int(level)),
		"year=" + strconv.Itoa(year),
		"seqn=" + params.Sequence,
		"title=" + params.Title,
		"gdate=" + params.GenerationDate,
		"allfltr=0",
		"prvslct=A",
		"prvlist=",
		"sbrep=" + f.subset,
	}, "^")

	return fmt.Sprintf("%s%s?xcrs=%s&prm=%s", f.site.Origin(), f.site.Endpoint, f.site.ReportPage, prm), nil
}

// Fetch 以表单POST方式获取某一层级的报表页面
// 错误类型:
//   - ConfigurationError: 年度不在参数表中
//   - TransportError: 连接失败或非2xx响应
//   - ParseError: 响应体无法解析为HTML
func (f *PageFetcher) Fetch(ctx context.Context, level models.Level, year int, value string) (*goquery.Document, error) {
	target, err := f.BuildURL(level, year)
	if err != nil {
		return nil, err
	}

	// 头部无效时不发送请求,缺少Referer/Origin的请求会被站点拒绝或返回错误页面
	var headers http.Header
	if f.headers != nil {
		headers, err = f.headers.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
	}

	if err := sleepContext(ctx, f.site.RequestDelay); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(0),
	)
	// 超时已设置在共享的client上,这里不能再调用SetRequestTimeout
	c.SetClient(f.client)

	var (
		body        []byte
		contentType string
		statusCode  int
		respErr     error
	)

	c.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		contentType = r.Headers.Get("Content-Type")

		// gzip已由Colly处理
		decoded, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			utils.Warnf("解压响应失败 [%s]: %v", target, err)
			decoded = r.Body
		}
		body = decoded
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		respErr = err
	})

	form := map[string]string{
		f.site.SelectorParam: value,
		"submit":             "Submit",
	}

	utils.Debugf("POST %s (%s=%s)", target, f.site.SelectorParam, value)
	postErr := c.Post(target, form)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if postErr == nil {
		postErr = respErr
	}
	if postErr != nil {
		return nil, &models.TransportError{URL: target, StatusCode: statusCode, Err: postErr}
	}
	if statusCode < 200 || statusCode > 299 {
		return nil, &models.TransportError{URL: target, StatusCode: statusCode, Err: errors.New(http.StatusText(statusCode))}
	}

	if err := sleepContext(ctx, f.site.RequestDelay); err != nil {
		return nil, err
	}

	return parseDocument(body, responseContentType(contentType), level.String()+"页面")
}

// responseContentType Content-Type中声明了字符集时Colly已转码为UTF-8
// 未声明时交给charset按BOM和meta识别
func responseContentType(contentType string) string {
	if strings.Contains(strings.ToLower(contentType), "charset") {
		return "text/html; charset=utf-8"
	}
	return "text/html"
}

// parseDocument 按Content-Type声明的字符集解码并解析HTML
func parseDocument(body []byte, contentType string, where string) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, &models.ParseError{Context: where, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &models.ParseError{Context: where, Err: err}
	}
	return doc, nil
}

// sleepContext 等待固定时长,ctx取消时提前返回
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 deflate, br (Brotli); gzip由Colly的HTTP后端解压
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "gzip", "identity":
		return body, nil

	default:
		// 未知编码,返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
