package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrWrongStatusValue reports a persisted ExtractionStatus outside the
// known range.
var ErrWrongStatusValue = errors.New("wrong extraction status value")

// MUS serializers for the persisted domain types. The storage layer depends
// on these for compact binary encoding of portfolio records.

var (
	IDMUS               = idMUS{}
	extractionStatusMUS = statusMUS{}
	attachmentMUS       = attachMUS{}
	awardMUS            = awdMUS{}
	certificationMUS    = certMUS{}
	languageSkillMUS    = langMUS{}
	basicInfoMUS        = infoMUS{}
	portfolioItemMUS    = itemMUS{}
	embeddingMUS        = embMUS{}
	processingStatusMUS = procMUS{}
	PortfolioMUS        = portfolioMUS{}

	awardSliceMUS         = ord.NewSliceSer[Award](awardMUS)
	certificationSliceMUS = ord.NewSliceSer[Certification](certificationMUS)
	languageSliceMUS      = ord.NewSliceSer[LanguageSkill](languageSkillMUS)
	itemSliceMUS          = ord.NewSliceSer[PortfolioItem](portfolioItemMUS)
	attachmentSliceMUS    = ord.NewSliceSer[Attachment](attachmentMUS)
	vectorMUS             = ord.NewSliceSer[float32](raw.Float32)
)

// timeMUS encodes a time.Time as Unix microseconds. The zero time encodes
// as zero and decodes back to the zero time.
type timeMUS struct{}

var timestampMUS = timeMUS{}

func (s timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	var micros int64
	if !v.IsZero() {
		micros = v.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (s timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) (size int) {
	var micros int64
	if !v.IsZero() {
		micros = v.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func (s timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return ID(num), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type statusMUS struct{}

func (s statusMUS) Marshal(v ExtractionStatus, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s statusMUS) Unmarshal(bs []byte) (v ExtractionStatus, n int, err error) {
	num, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	if num < int(ExtractionUnset) || num > int(ExtractionFailed) {
		return v, n, ErrWrongStatusValue
	}
	return ExtractionStatus(num), n, nil
}

func (s statusMUS) Size(v ExtractionStatus) (size int) {
	return varint.Int.Size(int(v))
}

func (s statusMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

type attachMUS struct{}

func (s attachMUS) Marshal(v Attachment, bs []byte) (n int) {
	n = ord.String.Marshal(v.FilePath, bs)
	n += extractionStatusMUS.Marshal(v.Status, bs[n:])
	return n
}

func (s attachMUS) Unmarshal(bs []byte) (v Attachment, n int, err error) {
	v.FilePath, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Status, n1, err = extractionStatusMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s attachMUS) Size(v Attachment) (size int) {
	return ord.String.Size(v.FilePath) + extractionStatusMUS.Size(v.Status)
}

func (s attachMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = extractionStatusMUS.Skip(bs[n:])
	n += n1
	return
}

type awdMUS struct{}

func (s awdMUS) Marshal(v Award, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Achievement, bs[n:])
	return n
}

func (s awdMUS) Unmarshal(bs []byte) (v Award, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Achievement, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s awdMUS) Size(v Award) (size int) {
	return ord.String.Size(v.Name) + ord.String.Size(v.Achievement)
}

func (s awdMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type certMUS struct{}

func (s certMUS) Marshal(v Certification, bs []byte) (n int) {
	return ord.String.Marshal(v.Name, bs)
}

func (s certMUS) Unmarshal(bs []byte) (v Certification, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	return
}

func (s certMUS) Size(v Certification) (size int) {
	return ord.String.Size(v.Name)
}

func (s certMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type langMUS struct{}

func (s langMUS) Marshal(v LanguageSkill, bs []byte) (n int) {
	n = ord.String.Marshal(v.TestName, bs)
	n += ord.String.Marshal(v.Score, bs[n:])
	return n
}

func (s langMUS) Unmarshal(bs []byte) (v LanguageSkill, n int, err error) {
	v.TestName, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Score, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s langMUS) Size(v LanguageSkill) (size int) {
	return ord.String.Size(v.TestName) + ord.String.Size(v.Score)
}

func (s langMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type infoMUS struct{}

func (s infoMUS) Marshal(v BasicInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.School, bs[n:])
	n += ord.String.Marshal(v.Major, bs[n:])
	n += ord.String.Marshal(v.DesiredPosition, bs[n:])
	n += awardSliceMUS.Marshal(v.Awards, bs[n:])
	n += certificationSliceMUS.Marshal(v.Certifications, bs[n:])
	n += languageSliceMUS.Marshal(v.Languages, bs[n:])
	return n
}

func (s infoMUS) Unmarshal(bs []byte) (v BasicInfo, n int, err error) {
	var n1 int
	if v.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.School, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Major, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DesiredPosition, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Awards, n1, err = awardSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Certifications, n1, err = certificationSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Languages, n1, err = languageSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return
}

func (s infoMUS) Size(v BasicInfo) (size int) {
	size = ord.String.Size(v.Name)
	size += ord.String.Size(v.School)
	size += ord.String.Size(v.Major)
	size += ord.String.Size(v.DesiredPosition)
	size += awardSliceMUS.Size(v.Awards)
	size += certificationSliceMUS.Size(v.Certifications)
	size += languageSliceMUS.Size(v.Languages)
	return size
}

func (s infoMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 4; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = awardSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = certificationSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = languageSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return
}

type itemMUS struct{}

func (s itemMUS) Marshal(v PortfolioItem, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += attachmentSliceMUS.Marshal(v.Attachments, bs[n:])
	return n
}

func (s itemMUS) Unmarshal(bs []byte) (v PortfolioItem, n int, err error) {
	var n1 int
	if v.Title, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Attachments, n1, err = attachmentSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return
}

func (s itemMUS) Size(v PortfolioItem) (size int) {
	return ord.String.Size(v.Title) + ord.String.Size(v.Content) +
		attachmentSliceMUS.Size(v.Attachments)
}

func (s itemMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = attachmentSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return
}

type embMUS struct{}

func (s embMUS) Marshal(v Embedding, bs []byte) (n int) {
	n = ord.String.Marshal(v.SearchableText, bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Uint64.Marshal(v.ContentHash, bs[n:])
	n += timestampMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (s embMUS) Unmarshal(bs []byte) (v Embedding, n int, err error) {
	var n1 int
	if v.SearchableText, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ContentHash, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = timestampMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return
}

func (s embMUS) Size(v Embedding) (size int) {
	return ord.String.Size(v.SearchableText) + vectorMUS.Size(v.Vector) +
		varint.Uint64.Size(v.ContentHash) + timestampMUS.Size(v.UpdatedAt)
}

func (s embMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = vectorMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = varint.Uint64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = timestampMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return
}

type procMUS struct{}

func (s procMUS) Marshal(v ProcessingStatus, bs []byte) (n int) {
	n = ord.Bool.Marshal(v.NeedsEmbedding, bs)
	n += timestampMUS.Marshal(v.LastProcessed, bs[n:])
	return n
}

func (s procMUS) Unmarshal(bs []byte) (v ProcessingStatus, n int, err error) {
	var n1 int
	if v.NeedsEmbedding, n, err = ord.Bool.Unmarshal(bs); err != nil {
		return
	}
	if v.LastProcessed, n1, err = timestampMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return
}

func (s procMUS) Size(v ProcessingStatus) (size int) {
	return ord.Bool.Size(v.NeedsEmbedding) + timestampMUS.Size(v.LastProcessed)
}

func (s procMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.Bool.Skip(bs); err != nil {
		return
	}
	if n1, err = timestampMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return
}

type portfolioMUS struct{}

func (s portfolioMUS) Marshal(v Portfolio, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.UserId, bs[n:])
	n += basicInfoMUS.Marshal(v.BasicInfo, bs[n:])
	n += itemSliceMUS.Marshal(v.Items, bs[n:])
	n += embeddingMUS.Marshal(v.Embedding, bs[n:])
	n += processingStatusMUS.Marshal(v.Processing, bs[n:])
	n += timestampMUS.Marshal(v.InsertedAt, bs[n:])
	n += timestampMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (s portfolioMUS) Unmarshal(bs []byte) (v Portfolio, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.UserId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.BasicInfo, n1, err = basicInfoMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Items, n1, err = itemSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Embedding, n1, err = embeddingMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Processing, n1, err = processingStatusMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = timestampMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = timestampMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return
}

func (s portfolioMUS) Size(v Portfolio) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.UserId)
	size += basicInfoMUS.Size(v.BasicInfo)
	size += itemSliceMUS.Size(v.Items)
	size += embeddingMUS.Size(v.Embedding)
	size += processingStatusMUS.Size(v.Processing)
	size += timestampMUS.Size(v.InsertedAt)
	size += timestampMUS.Size(v.UpdatedAt)
	return size
}

func (s portfolioMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = basicInfoMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = itemSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = embeddingMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = processingStatusMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = timestampMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = timestampMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return
}
