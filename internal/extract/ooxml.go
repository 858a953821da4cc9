package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DOCX and PPTX are both OOXML packages: zip archives of XML parts. Text is
// pulled straight from the run elements (w:t for documents, a:t for slides),
// matching the paragraph/shape joining the office libraries expose.

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func fromDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	part := findPart(archive, "word/document.xml")
	if part == nil {
		return "", errors.New("docx is missing word/document.xml")
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	paragraphs, err := documentParagraphs(rc)
	if err != nil {
		return "", fmt.Errorf("parse document part: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func fromPPTX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}

	type slidePart struct {
		number int
		file   *zip.File
	}
	var slides []slidePart
	for _, file := range archive.File {
		match := slidePattern.FindStringSubmatch(file.Name)
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		slides = append(slides, slidePart{number: number, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var texts []string
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			return "", fmt.Errorf("open slide %d: %w", slide.number, err)
		}
		shapes, err := slideShapeTexts(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse slide %d: %w", slide.number, err)
		}
		texts = append(texts, shapes...)
	}
	return strings.Join(texts, "\n"), nil
}

func findPart(archive *zip.Reader, name string) *zip.File {
	for _, file := range archive.File {
		if file.Name == name {
			return file
		}
	}
	return nil
}

// documentParagraphs returns the text of each w:p paragraph in document order.
func documentParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var paragraphs []string
	var current strings.Builder
	var inParagraph, inRunText bool

	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inRunText = inParagraph
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
				}
				inParagraph = false
			case "t":
				inRunText = false
			}
		case xml.CharData:
			if inRunText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// slideShapeTexts returns one string per text body on the slide, in the deck's
// native shape order. Paragraphs inside a shape are joined with newlines.
func slideShapeTexts(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var shapes []string
	var paragraphs []string
	var current strings.Builder
	var inBody, inRunText bool

	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				inBody = true
				paragraphs = paragraphs[:0]
			case "p":
				if inBody {
					current.Reset()
				}
			case "t":
				inRunText = inBody
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "txBody":
				if inBody {
					shapes = append(shapes, strings.Join(paragraphs, "\n"))
				}
				inBody = false
			case "p":
				if inBody {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inRunText = false
			}
		case xml.CharData:
			if inRunText {
				current.Write(t)
			}
		}
	}
	return shapes, nil
}
