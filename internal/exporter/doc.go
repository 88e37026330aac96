// Package exporter writes report tables to CSV and XLSX files.
//
// CSVWriter writes whole files or opens a StreamWriter for large reports.
// XLSXWriter streams rows into a single worksheet with excelize. Both satisfy
// RecordWriter, which NewRecordWriter returns for a Format.
//
// Example usage:
//
//	w, err := exporter.NewRecordWriter(exporter.FormatCSV, "out/report.csv",
//		exporter.WriteOptions{CRLF: true})
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	if err := w.WriteHeader(header); err != nil {
//		return err
//	}
package exporter
