package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestDecodeText_UTF8WithBOM(t *testing.T) {
	assert.Equal(t, "Campaign,Cost", DecodeText([]byte("\xEF\xBB\xBFCampaign,Cost")))
}

func TestDecodeText_UTF16LittleEndian(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("Кампания\tСтоимость\r\nЛето\t500,00"))
	require.NoError(t, err)

	assert.Equal(t, "Кампания\tСтоимость\r\nЛето\t500,00", DecodeText(data))
}

func TestDecodeText_UTF16BigEndian(t *testing.T) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("Campaign;Cost"))
	require.NoError(t, err)

	assert.Equal(t, "Campaign;Cost", DecodeText(data))
}

func TestDecodeText_Windows1252Fallback(t *testing.T) {
	data := []byte{'C', 'a', 'f', 0xE9, ';', 0x80, '5'}
	assert.Equal(t, "Café;€5", DecodeText(data))
}

func TestDecodeText_Windows1251Fallback(t *testing.T) {
	data, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte("Кампания;Показы;Стоимость\nЛето;100;5,00"))
	require.NoError(t, err)

	assert.Equal(t, "Кампания;Показы;Стоимость\nЛето;100;5,00", DecodeText(data))
}

func TestParser_DecodeUsesConfiguredMarkers(t *testing.T) {
	data, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte("Отчёт\nНазвание;Расход\nЛето;5,00"))
	require.NoError(t, err)

	p := testParser(func(o *Options) { o.Markers = []string{"название"} })
	assert.Contains(t, p.Decode(data), "Название;Расход")

	assert.NotContains(t, DecodeText(data), "Название", "default markers keep Windows-1252")
}
